package repository

import "errors"

var (
	ErrNotFound         = errors.New("learning path not found")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrStaleProposal    = errors.New("proposal is based on an outdated revision")
)
