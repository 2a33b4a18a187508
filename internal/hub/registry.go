package hub

import (
	"strings"

	"hivemind/internal/logging"
	"hivemind/internal/types"
)

// RegisterAgent stores (or overwrites) an agent's capability declaration.
// Always succeeds: capability strings are not validated, and re-registering
// resets the agent's activity counters while keeping its original position
// in registration order. The ref is opaque; the hub stores it for callers
// but never invokes it.
func (h *Hub) RegisterAgent(name string, capabilities []string, ref any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.agents[name]; !exists {
		h.agentOrder = append(h.agentOrder, name)
	}
	h.agents[name] = &types.AgentRegistration{
		Name:         name,
		Capabilities: append([]string(nil), capabilities...),
		AgentRef:     ref,
		RegisteredAt: h.now(),
	}

	logging.Hub("Agent %s registered with %d capabilities", name, len(capabilities))
}

// Registration returns a copy of an agent's registry record.
func (h *Hub) Registration(name string) (types.AgentRegistration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reg, ok := h.agents[name]
	if !ok {
		return types.AgentRegistration{}, false
	}
	out := *reg
	out.Capabilities = append([]string(nil), reg.Capabilities...)
	return out, true
}

// RegisteredAgents returns agent names in registration order.
func (h *Hub) RegisteredAgents() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.agentOrder...)
}

// capabilityText joins a capability list into the lowercase haystack used
// for loose matching.
func capabilityText(capabilities []string) string {
	return strings.ToLower(strings.Join(capabilities, " "))
}

// matchesCapability reports whether a required-capability keyword loosely
// matches the capability list: a case-insensitive substring test, so an
// agent declaring "market_research" matches a requirement of "market".
func matchesCapability(capabilities []string, required string) bool {
	return strings.Contains(capabilityText(capabilities), strings.ToLower(required))
}

// matchesAnyCapability reports whether any required keyword matches.
func matchesAnyCapability(capabilities []string, required []string) bool {
	for _, req := range required {
		if matchesCapability(capabilities, req) {
			return true
		}
	}
	return false
}

// findCapableAgentsLocked returns, in registration order, every agent
// matching at least one required capability. Callers must hold h.mu.
func (h *Hub) findCapableAgentsLocked(required []string) []string {
	var capable []string
	for _, name := range h.agentOrder {
		if matchesAnyCapability(h.agents[name].Capabilities, required) {
			capable = append(capable, name)
		}
	}
	return capable
}
