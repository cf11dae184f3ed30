package events

// Topic identifies a class of transaction life-cycle events.
type Topic string

const (
	// TopicTxProcessing fires once a proposed transaction starts executing
	// on chain and a real transaction hash is known.
	TopicTxProcessing Topic = "tx_processing"

	// TopicSignaturePrepared fires when a signature flow has produced a
	// signature for a pending request.
	TopicSignaturePrepared Topic = "signature_prepared"

	// TopicFlowClosed fires when a confirmation flow is dismissed without
	// completing.
	TopicFlowClosed Topic = "flow_closed"
)

// TxProcessingEvent carries the on-chain hash assigned to an internal
// transaction id once execution begins.
type TxProcessingEvent struct {
	TxID   string `json:"txId"`
	TxHash string `json:"txHash"`
}

// SignaturePreparedEvent carries the signature produced for a pending
// signature request.
type SignaturePreparedEvent struct {
	RequestID string `json:"requestId"`
	Signature string `json:"signature"`
}

// FlowClosedEvent carries the id of a dismissed confirmation flow.
type FlowClosedEvent struct {
	RequestID string `json:"requestId"`
}
