package netflow

import (
	"math/big"

	"netflowMonitor/internal/model"
	"netflowMonitor/internal/registry"
)

// Classify computes the signed flow of a transfer relative to one exchange's
// monitored set. A monitored recipient counts as inflow; otherwise a
// monitored sender counts as outflow. On a self-transfer inside the set the
// recipient side wins, so it records as inflow.
func Classify(event model.TransferEvent, reg *registry.Registry) model.ClassifiedFlow {
	flow := model.ClassifiedFlow{
		Exchange: reg.Label(),
		Inflow:   new(big.Int),
		Outflow:  new(big.Int),
	}
	if event.Amount == nil {
		return flow
	}

	switch {
	case reg.Contains(event.To):
		flow.Inflow = new(big.Int).Set(event.Amount)
	case reg.Contains(event.From):
		flow.Outflow = new(big.Int).Set(event.Amount)
	}
	return flow
}

// NextCumulative returns prior + inflow - outflow without mutating any of its
// arguments. A nil prior is treated as zero (first snapshot for a label).
func NextCumulative(prior, inflow, outflow *big.Int) *big.Int {
	next := new(big.Int)
	if prior != nil {
		next.Set(prior)
	}
	if inflow != nil {
		next.Add(next, inflow)
	}
	if outflow != nil {
		next.Sub(next, outflow)
	}
	return next
}
