package distributor

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoSender is returned when no effective sender has been resolved for
// the claim attempt.
var ErrNoSender = errors.New("no effective sender in context")

// SenderResolver yields the effective originator of a claim attempt after
// any meta-transaction substitution. The orchestrator queries it exactly
// once per attempt; how the identity was established (direct caller,
// trusted forwarder, relayer) is outside the orchestrator's concern.
type SenderResolver interface {
	EffectiveSender(ctx context.Context) (common.Address, error)
}

type senderKey struct{}

// WithSender returns a context carrying addr as the effective sender.
// The HTTP middleware stores the resolved identity here.
func WithSender(ctx context.Context, addr common.Address) context.Context {
	return context.WithValue(ctx, senderKey{}, addr)
}

// ContextSenderResolver resolves the effective sender from the request
// context populated by WithSender.
type ContextSenderResolver struct{}

// EffectiveSender implements SenderResolver.
func (ContextSenderResolver) EffectiveSender(ctx context.Context) (common.Address, error) {
	addr, ok := ctx.Value(senderKey{}).(common.Address)
	if !ok {
		return common.Address{}, ErrNoSender
	}
	return addr, nil
}
