package match

import "database/sql"

// NewWithTxRunner builds a Store whose result writes go through run.
func NewWithTxRunner(db *sql.DB, policy RetryPolicy, run txRunner) Store {
	return &store{db: db, retry: policy, runInTx: run}
}
