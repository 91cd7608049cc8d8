package pipeline

import (
	"context"
	"fmt"

	"github.com/theirongolddev/stashstat/internal/model"
)

// IdentityResolver maps a local consumer id to an external identity.
type IdentityResolver interface {
	ResolveConsumerIdentity(ctx context.Context, consumerID string) (model.ExternalIdentity, bool, error)
}

// FilterScope returns the records that belong to scope, in their original
// order. Only ScopeSelfAsConsumer consults the resolver, once per distinct
// consumer; a consumer without a known identity is matched by its raw id.
func FilterScope(
	ctx context.Context,
	records []model.ActivityRecord,
	scope model.Scope,
	currentUserID string,
	resolver IdentityResolver,
) ([]model.ActivityRecord, error) {
	if len(records) == 0 {
		return []model.ActivityRecord{}, nil
	}

	switch scope {
	case model.ScopeSelfStash:
		return keep(records, func(r model.ActivityRecord) bool {
			return r.Owner == "" || (currentUserID != "" && r.Owner == currentUserID)
		}), nil
	case model.ScopeCounterpartyStash:
		return keep(records, func(r model.ActivityRecord) bool {
			return r.Owner == model.OwnerCounterparty
		}), nil
	case model.ScopeSelfAsConsumer:
		if currentUserID == "" {
			return []model.ActivityRecord{}, nil
		}
		return filterByConsumer(ctx, records, currentUserID, resolver)
	}
	return nil, fmt.Errorf("unknown scope %q", scope)
}

func filterByConsumer(
	ctx context.Context,
	records []model.ActivityRecord,
	currentUserID string,
	resolver IdentityResolver,
) ([]model.ActivityRecord, error) {
	effective := make(map[string]string)
	result := make([]model.ActivityRecord, 0, len(records))

	for _, r := range records {
		who, seen := effective[r.ConsumerID]
		if !seen {
			who = r.ConsumerID
			if resolver != nil {
				ident, ok, err := resolver.ResolveConsumerIdentity(ctx, r.ConsumerID)
				if err != nil {
					return nil, fmt.Errorf("resolving consumer %s: %w", r.ConsumerID, err)
				}
				if ok && ident.UserID != "" {
					who = ident.UserID
				}
			}
			effective[r.ConsumerID] = who
		}
		if who == currentUserID {
			result = append(result, r)
		}
	}
	return result, nil
}

func keep(records []model.ActivityRecord, pred func(model.ActivityRecord) bool) []model.ActivityRecord {
	result := make([]model.ActivityRecord, 0, len(records))
	for _, r := range records {
		if pred(r) {
			result = append(result, r)
		}
	}
	return result
}
