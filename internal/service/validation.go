package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/maxviazov/edutrack-service/internal/repository"
)

// PagePolicy bounds what clients may ask for in one page.
type PagePolicy struct {
	DefaultLimit int
	MaxLimit     int
}

// normalized fills in zero values so a bare PagePolicy{} is usable.
func (p PagePolicy) normalized() PagePolicy {
	if p.DefaultLimit <= 0 {
		p.DefaultLimit = repository.DefaultPageLimit
	}
	if p.MaxLimit <= 0 {
		p.MaxLimit = 100
	}
	if p.DefaultLimit > p.MaxLimit {
		p.DefaultLimit = p.MaxLimit
	}
	return p
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// resolvePage validates q against the policy and turns it into a store page.
// skip defaults to 0 and limit to the policy default.
func resolvePage(q UserListQuery, policy PagePolicy) (repository.Page, error) {
	page := repository.Page{Limit: policy.DefaultLimit}
	var ferrs []FieldError

	if q.Skip != nil {
		if err := validate.Var(*q.Skip, "min=0"); err != nil {
			ferrs = append(ferrs, FieldError{Field: "skip", Message: "must be >= 0"})
		} else {
			page.Offset = *q.Skip
		}
	}
	if q.Limit != nil {
		rule := fmt.Sprintf("min=1,max=%d", policy.MaxLimit)
		if err := validate.Var(*q.Limit, rule); err != nil {
			ferrs = append(ferrs, FieldError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", policy.MaxLimit)})
		} else {
			page.Limit = *q.Limit
		}
	}
	if err := NewInvalidInput(ferrs); err != nil {
		return repository.Page{}, err
	}
	return page, nil
}
