/*
Package wallet implements the ledger engine: the only code path that changes
a wallet balance.

Operations:

	svc := wallet.NewService(repo, failures, gw, locker, publisher, wallet.Config{}, metrics)

	// Credit a wallet, exactly once per key
	tx, err := svc.Fund(ctx, userID, amount, wallet.WithReference(txRef))

	// Pay out to a bank account, then debit
	tx, err = svc.Withdraw(ctx, userID, wallet.WithdrawRequest{Amount: amount, AccountNumber: acct, BankCode: bank})

	// Move value between two wallets
	res, err := svc.Transfer(ctx, fromUserID, toUserID, amount)

	// Read the stored balance
	balance, err := svc.GetBalance(ctx, userID)

Every balance change runs in one store transaction that locks the affected
wallet rows, re-checks funds, updates the balance, appends an immutable
transaction record and, when a reference is supplied, claims it. Transfers
lock both wallets in ascending user id order.

Withdrawals call the payout gateway before the store transaction and never
while holding a row lock. A payout that succeeds but cannot be settled is
written to the failed-transaction log for manual reconciliation.

Errors:

All returned errors wrap the sentinels in purse/internal/errors, e.g.
ErrInvalidAmount, ErrInsufficientBalance, ErrDuplicateReference,
ErrPayoutFailed and ErrSettlementFailed. Match them with errors.Is.
*/
package wallet
