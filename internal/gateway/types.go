package gateway

// TxStatus is the gateway-reported life-cycle status of a Safe transaction.
type TxStatus string

const (
	TxStatusAwaitingConfirmations TxStatus = "AWAITING_CONFIRMATIONS"
	TxStatusAwaitingExecution     TxStatus = "AWAITING_EXECUTION"
	TxStatusPending               TxStatus = "PENDING"
	TxStatusSuccess               TxStatus = "SUCCESS"
	TxStatusFailed                TxStatus = "FAILED"
	TxStatusCancelled             TxStatus = "CANCELLED"
)

// TransactionDetails is the gateway's detail record for one Safe transaction.
// TxHash is empty until the proposal has been executed on chain.
type TransactionDetails struct {
	SafeAddress           string                 `json:"safeAddress"`
	TxID                  string                 `json:"txId"`
	TxStatus              TxStatus               `json:"txStatus"`
	TxHash                string                 `json:"txHash"`
	ExecutedAt            int64                  `json:"executedAt"`
	DetailedExecutionInfo *DetailedExecutionInfo `json:"detailedExecutionInfo"`
}

// DetailedExecutionInfo carries the multisig bookkeeping of a transaction.
type DetailedExecutionInfo struct {
	Type                  string         `json:"type"`
	SafeTxHash            string         `json:"safeTxHash"`
	Nonce                 int64          `json:"nonce"`
	ConfirmationsRequired int64          `json:"confirmationsRequired"`
	Confirmations         []Confirmation `json:"confirmations"`
}

// Confirmation is one collected signer approval.
type Confirmation struct {
	Signer      AddressValue `json:"signer"`
	Signature   string       `json:"signature"`
	SubmittedAt int64        `json:"submittedAt"`
}

// AddressValue is the gateway's wrapped address representation.
type AddressValue struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}
