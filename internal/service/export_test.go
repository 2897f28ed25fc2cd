package service

// SyncGuard exposes the in-flight guard to service_test.
type SyncGuard = syncGuard
