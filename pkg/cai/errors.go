package cai

import "github.com/pkg/errors"

var (
	// ErrAuthentication indicates client credentials could not be resolved.
	ErrAuthentication = errors.New("error authenticating asset inventory client")

	// ErrRemoteService indicates the service returned a terminal failure,
	// transient failures are retried by the SDK before this surfaces.
	ErrRemoteService = errors.New("error in asset inventory query")

	// ErrConfig indicates invalid client construction parameters.
	ErrConfig = errors.New("client configuration error")

	// ErrInvalidScope indicates a malformed scope identifier.
	ErrInvalidScope = errors.New("invalid scope identifier")

	// ErrNotFound indicates the scope holds no matching asset.
	ErrNotFound = errors.New("no asset matched")

	// ErrNoParentProject indicates the asset type cannot live under a project.
	ErrNoParentProject = errors.New("asset type has no parent project")
)
