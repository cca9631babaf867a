package engine

import "github.com/rs/zerolog"

// SearchStats counts what one search context did. Parallel workers keep their
// own and the dispatcher adds them up.
type SearchStats struct {
	Nodes            uint64
	QNodes           uint64
	BetaCutoffs      uint64
	QStandPatCutoffs uint64
	QBetaCutoffs     uint64
	TTHits           uint64
	TTStores         uint64
}

func (s *SearchStats) add(o SearchStats) {
	s.Nodes += o.Nodes
	s.QNodes += o.QNodes
	s.BetaCutoffs += o.BetaCutoffs
	s.QStandPatCutoffs += o.QStandPatCutoffs
	s.QBetaCutoffs += o.QBetaCutoffs
	s.TTHits += o.TTHits
	s.TTStores += o.TTStores
}

// MarshalZerologObject lets the stats ride along on a log event.
func (s SearchStats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("nodes", s.Nodes).
		Uint64("qnodes", s.QNodes).
		Uint64("beta_cutoffs", s.BetaCutoffs).
		Uint64("q_standpat_cutoffs", s.QStandPatCutoffs).
		Uint64("q_beta_cutoffs", s.QBetaCutoffs).
		Uint64("tt_hits", s.TTHits).
		Uint64("tt_stores", s.TTStores)
}
