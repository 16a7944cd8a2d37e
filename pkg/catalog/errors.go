// Package catalog is the repository and service layer over the relational
// entities of spec §3: Workspace, Document, TestDataset, TestQuestion. It
// owns the transactional writes backing the /workspace and
// /evaluation/dataset routes of spec §6.
package catalog

import "github.com/maxwell-labs/ragbench/pkg/apperrors"

func validationError(format string, args ...any) error {
	return apperrors.New(apperrors.KindInputInvalid, format, args...)
}
