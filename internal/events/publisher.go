package events

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"airdrop-backend/internal/types"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// claimEventMessage is the wire form of a claim event on the bus.
type claimEventMessage struct {
	Module        string `json:"module"`
	ClaimIndex    uint64 `json:"claim_index"`
	Claimant      string `json:"claimant"`
	AssetContract string `json:"asset_contract"`
	AssetID       string `json:"asset_id"`
	Amount        string `json:"amount"`
	EmittedAt     string `json:"emitted_at"`
}

// Publisher pushes claim events to NATS. A nil Publisher is valid and
// publishes nothing, so the service runs without an event bus configured.
type Publisher struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NewPublisher connects to NATS and returns a claim event publisher.
func NewPublisher(url string, timeout time.Duration, subjectPrefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	logrus.WithField("url", url).Info("NATS claim event publisher connected")
	return &Publisher{nc: nc, subjectPrefix: subjectPrefix}, nil
}

// PublishClaim publishes one claim event to <prefix>.<module>.
func (p *Publisher) PublishClaim(event *types.ClaimEvent) error {
	if p == nil {
		return nil
	}
	msg := claimEventMessage{
		Module:        event.Module,
		ClaimIndex:    event.ClaimIndex,
		Claimant:      event.Claimant.Hex(),
		AssetContract: event.AssetContract.Hex(),
		AssetID:       decimal(event.AssetID),
		Amount:        decimal(event.Amount),
		EmittedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal claim event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, event.Module)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
