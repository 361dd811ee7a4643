package repositories

// RepositoryProvider bundles the stores selected by STORAGE_DRIVER. LedgerStore is always
// process-local, whichever driver backs the rest.
type RepositoryProvider struct {
	ApplicationRepo ApplicationRepositoryFacade
	AuditLogRepo    AuditLogRepositoryFacade
	UserRepo        UserRepositoryFacade
	LedgerStore     ReviewLedgerStore
}
