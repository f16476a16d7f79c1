package domain

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// SOL converts whole SOL to lamports.
func SOL(n uint64) uint64 {
	return n * LamportsPerSOL
}

// Vault is the singleton custodial account holding pooled stakes.
// Its balance lives in the ledger account at Address, not on this record.
type Vault struct {
	Address     string // derived from the "vault" seed
	Owner       string // identity allowed to top up the vault
	Bump        uint8  // bump seed found during address derivation
	Initialized bool
}

// Account is a native ledger account.
type Account struct {
	Address  string
	Lamports uint64
}
