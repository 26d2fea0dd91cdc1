package realtime

import (
	"encoding/json"
	"time"
)

// Topic identifies the kind of state change carried by an envelope.
type Topic string

// The fixed set of topics published by mutation handlers. The subscription
// routing table must cover every one of these.
const (
	TopicLeadCreated  Topic = "lead:created"
	TopicLeadUpdated  Topic = "lead:updated"
	TopicLeadDeleted  Topic = "lead:deleted"
	TopicLeadAssigned Topic = "lead:assigned"

	TopicCallLogCreated Topic = "callLog:created"

	TopicPlotCreated Topic = "plot:created"
	TopicPlotUpdated Topic = "plot:updated"
	TopicPlotDeleted Topic = "plot:deleted"

	TopicPaymentCreated Topic = "payment:created"

	TopicBuyerInterestCreated Topic = "buyerInterest:created"
	TopicBuyerInterestUpdated Topic = "buyerInterest:updated"

	TopicLeadInterestCreated Topic = "leadInterest:created"

	TopicActivityLogged Topic = "activity:logged"

	TopicMetricsUpdated Topic = "metrics:updated"
)

// TopicConnected is the acknowledgement frame sent right after a successful
// handshake. It carries no routing semantics.
const TopicConnected Topic = "connected"

// Topics lists every publishable topic.
func Topics() []Topic {
	return []Topic{
		TopicLeadCreated, TopicLeadUpdated, TopicLeadDeleted, TopicLeadAssigned,
		TopicCallLogCreated,
		TopicPlotCreated, TopicPlotUpdated, TopicPlotDeleted,
		TopicPaymentCreated,
		TopicBuyerInterestCreated, TopicBuyerInterestUpdated,
		TopicLeadInterestCreated,
		TopicActivityLogged,
		TopicMetricsUpdated,
	}
}

// Payload is the flat id-only body of an envelope. Full entity bodies are
// never pushed; receivers refetch through the authenticated REST API.
type Payload map[string]any

// Envelope is the wire unit sent from the gateway to clients.
type Envelope struct {
	Type      Topic   `json:"type"`
	Data      Payload `json:"data"`
	Timestamp string  `json:"timestamp"`
}

// NewEnvelope builds an envelope stamped with the current time.
func NewEnvelope(topic Topic, data Payload) Envelope {
	if data == nil {
		data = Payload{}
	}
	return Envelope{
		Type:      topic,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Encode serializes the envelope once so fan-out can reuse the same bytes
// for every recipient.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
