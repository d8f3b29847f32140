package translate

import (
	"errors"
	"fmt"

	"github.com/gnolang/ruslic/internal/types"
)

var (
	// ErrContract reports a contract the translator cannot express: a
	// future of a shared reference, an impure call, an operator under a
	// pending parameter request.
	ErrContract = errors.New("invalid contract")
	// ErrInvariant reports a mismatch between the frontend's output and
	// what the translator expects. It is never the user's fault.
	ErrInvariant = errors.New("translator invariant violated")
)

func contractf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func unsupported(r types.Reason) error {
	return &types.Unsupported{Reason: r}
}

// tagInMain marks an Unsupported error with where it was raised.
func tagInMain(err error, inMain bool) error {
	var u *types.Unsupported
	if errors.As(err, &u) {
		return &types.Unsupported{InMain: inMain, Reason: u.Reason}
	}
	return err
}
