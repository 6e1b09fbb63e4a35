package inbox

import "sync"

// Hub distribui registros recém-anexados para assinantes SSE da mesma
// chave de instância. Escopo de processo: cada réplica notifica apenas os
// clientes conectados a ela; o GET de polling continua disponível como
// caminho consistente entre réplicas.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan MessageRecord]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan MessageRecord]struct{}),
	}
}

// Subscribe registra um assinante para a chave. O cancelamento remove o
// canal e o fecha; depois de cancelado o canal não recebe mais nada.
func (h *Hub) Subscribe(key string) (<-chan MessageRecord, func()) {
	ch := make(chan MessageRecord, 16)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan MessageRecord]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[key]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Publish entrega o registro a todos os assinantes da chave. Assinante
// com canal cheio perde o evento; ele se ressincroniza no próximo GET.
func (h *Hub) Publish(key string, rec MessageRecord) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[key] {
		select {
		case ch <- rec:
		default:
		}
	}
}

// Subscribers informa quantos assinantes a chave tem no momento.
func (h *Hub) Subscribers(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key])
}
