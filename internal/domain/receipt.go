package domain

// TransactionReceipt is the part of a "tx" RPC result the tracker reads.
type TransactionReceipt struct {
	Hash         string
	SenderID     string
	ReceiverID   string
	Method       string
	SuccessValue string
}
