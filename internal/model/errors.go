package model

import "github.com/pkg/errors"

var (
	ErrConfig         = errors.New("configuration error")
	ErrInventoryQuery = errors.New("error in inventory service query")
	ErrPublish        = errors.New("error publishing asset record")
)
