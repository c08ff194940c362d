// Package petition decides whether a player's free-text petition may become
// a policy.
package petition

import (
	"context"
	"unicode/utf8"

	"citycouncil/internal/domain"
)

// DefaultMinLength is the length a petition must exceed to be approved
const DefaultMinLength = 5

// Approver reviews petition text
type Approver interface {
	Review(ctx context.Context, text string) (domain.PetitionVerdict, error)
}

// ApproverFunc adapts a function to Approver
type ApproverFunc func(ctx context.Context, text string) (domain.PetitionVerdict, error)

// Review calls f
func (f ApproverFunc) Review(ctx context.Context, text string) (domain.PetitionVerdict, error) {
	return f(ctx, text)
}

// LengthApprover approves any petition longer than MinLength characters.
// Approved petitions carry no effects on the city.
type LengthApprover struct {
	MinLength int
}

// NewLengthApprover returns a LengthApprover with the given threshold
func NewLengthApprover(minLength int) *LengthApprover {
	return &LengthApprover{MinLength: minLength}
}

// Review implements Approver
func (a *LengthApprover) Review(ctx context.Context, text string) (domain.PetitionVerdict, error) {
	if err := ctx.Err(); err != nil {
		return domain.PetitionVerdict{}, err
	}

	n := utf8.RuneCountInString(text)
	if n <= a.MinLength {
		return domain.PetitionVerdict{
			Approved: false,
			Message:  "Petition rejected: please describe the proposal in more detail.",
		}, nil
	}
	return domain.PetitionVerdict{
		Approved: true,
		Message:  "Petition approved: it will be on the table next.",
		Effects:  domain.Effects{},
	}, nil
}
