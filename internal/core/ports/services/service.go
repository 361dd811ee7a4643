package services

// ServiceContainer is what handlers receive. Review and Workflow share one ledger, so both
// must come from the same services.NewServiceContainer call.
type ServiceContainer struct {
	Application ApplicationSvcFacade
	Review      ReviewLedgerSvcFacade
	Workflow    WorkflowSvcFacade
	Audit       AuditSvcFacade
	User        UserSvcFacade
	Auth        AuthSvcFacade
}
