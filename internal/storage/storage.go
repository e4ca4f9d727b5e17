package storage

import (
	"context"

	"netflowMonitor/internal/model"
)

// FlowStore is the ingestion write path. One observed transfer produces one
// ledger row and one snapshot append per classified flow, all applied as a
// single atomic unit.
type FlowStore interface {
	RecordFlows(ctx context.Context, record model.TransferRecord, flows []model.ClassifiedFlow) error
}

// NetflowReader is the read path for the query surface. A nil snapshot with a
// nil error means no netflow has ever been recorded for the label.
type NetflowReader interface {
	LatestNetflow(ctx context.Context, exchange string) (*model.NetflowSnapshot, error)
}
