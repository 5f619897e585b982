package model

import "github.com/mdobak/go-xerrors"

var (
	ErrDecode           = xerrors.Message("unable to decode media")
	ErrNotFitted        = xerrors.Message("model has not been fitted")
	ErrInsufficientData = xerrors.Message("insufficient data for the requested components")
	ErrEmptyCorpus      = xerrors.Message("no eligible media found in corpus")
	ErrInvalidArgument  = xerrors.Message("invalid argument")
	ErrNotFound         = xerrors.Message("not found")
)
