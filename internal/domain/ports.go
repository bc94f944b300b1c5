package domain

import "context"

// ExecutionPort is the outbound execution contract. The core invokes
// these operations; it never depends on a concrete brokerage type.
type ExecutionPort interface {
	Submit(ctx context.Context, signal Trade) error
	Modify(ctx context.Context, ticket string, sl, tp *float64) error
	Cancel(ctx context.Context, ticket string) error
	Positions(ctx context.Context) ([]OpenPosition, error)
	AccountStatus(ctx context.Context) (AccountStatus, error)
}

// HistoricalLoader is the backtest CSV loading contract.
type HistoricalLoader interface {
	LoadOHLCV(ctx context.Context, symbol string, tf Timeframe, path string) ([]Bar, error)
}

// InboundFeed is the brokerage/bar-aggregator collaborator that drives the
// core's on_tick/on_bar/on_fill callbacks.
type InboundFeed interface {
	OnTick(symbol string, tick TickSnapshot)
	OnBar(symbol string, tf Timeframe, bar Bar)
	OnFill(fill Fill)
}

// PredictorPort is the pluggable ML capability the composer's predictor
// mode consumes: pre-trained predictors reached through an abstract
// capability rather than a concrete model dependency.
type PredictorPort interface {
	Predict(ctx context.Context, features map[string]float64) (probabilityUp float64, err error)
}
