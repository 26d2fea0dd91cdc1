// Package subscription implements the client side of the realtime channel:
// it maintains one websocket connection to the gateway and turns inbound
// envelopes into cache invalidations through a static routing table.
package subscription

// Target describes one invalidation to perform when a topic arrives. When
// Param is set, the invalidation is additionally scoped by that field of the
// envelope payload (e.g. only the call-log cache entry for one lead). Scoped
// targets are an optimization on top of the blanket ones, never a
// replacement for them.
type Target struct {
	Key   string
	Param string
}

// routes is the static topic → invalidation mapping. A plain lookup table
// keeps coverage mechanically checkable; see routes_test.go.
var routes = map[string][]Target{
	"lead:created":  leadTargets,
	"lead:updated":  leadTargets,
	"lead:deleted":  leadTargets,
	"lead:assigned": leadTargets,

	"callLog:created": {
		{Key: "/api/call-logs/lead", Param: "leadId"},
		{Key: "/api/dashboard/salesperson"},
		{Key: "/api/dashboard/salesperson/detailed"},
		{Key: "/api/dashboard"},
		{Key: "/api/leads"},
		{Key: "/api/leads/contacted"},
	},

	"plot:created": plotTargets,
	"plot:updated": plotTargets,
	"plot:deleted": plotTargets,

	"payment:created": {
		{Key: "/api/payments"},
		{Key: "/api/dashboard"},
		{Key: "/api/plots"},
	},

	"buyerInterest:created": buyerInterestTargets,
	"buyerInterest:updated": buyerInterestTargets,

	"leadInterest:created": {
		{Key: "/api/lead-interests/lead", Param: "leadId"},
		{Key: "/api/lead-interests/project", Param: "projectId"},
		{Key: "/api/plots"},
		{Key: "/api/leads"},
	},

	"activity:logged": {
		{Key: "/api/activity-logs"},
	},

	"metrics:updated": {
		{Key: "/api/dashboard/salesperson"},
		{Key: "/api/dashboard/salesperson/detailed"},
		{Key: "/api/dashboard"},
		{Key: "/api/analytics"},
	},
}

var leadTargets = []Target{
	{Key: "/api/leads"},
	{Key: "/api/dashboard/salesperson"},
	{Key: "/api/dashboard/salesperson/detailed"},
	{Key: "/api/dashboard"},
	{Key: "/api/leads/today-followups"},
	{Key: "/api/missed-followups"},
	{Key: "/api/leads/contacted"},
}

var plotTargets = []Target{
	{Key: "/api/plots"},
	{Key: "/api/projects"},
	{Key: "/api/dashboard"},
}

var buyerInterestTargets = []Target{
	{Key: "/api/buyer-interests/plot", Param: "plotId"},
	{Key: "/api/plots"},
}

// Topics returns every topic the routing table covers.
func Topics() []string {
	topics := make([]string, 0, len(routes))
	for topic := range routes {
		topics = append(topics, topic)
	}
	return topics
}

// ResolveTargets maps a topic and its payload to concrete invalidation keys.
// Unknown topics resolve to nothing. A scoped target whose payload field is
// absent is skipped; the blanket targets still apply.
func ResolveTargets(topic string, data map[string]any) []string {
	targets, ok := routes[topic]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(targets))
	for _, t := range targets {
		if t.Param == "" {
			keys = append(keys, t.Key)
			continue
		}
		if v, ok := data[t.Param].(string); ok && v != "" {
			keys = append(keys, t.Key+"/"+v)
		}
	}
	return keys
}
