package database

import "gorm.io/gorm"

// Advisory lock classes. Each guarded entity gets its own key space so a
// lawyer id and a hearing id never contend with each other.
const (
	LockBookingWindow   = 1
	LockHearingRequests = 2
)

// advisoryLockKey packs the class and entity id into a single 64-bit key
func advisoryLockKey(class int, id uint) int64 {
	return int64(class)<<32 | int64(uint32(id))
}

// AcquireTxLock serializes transactions guarding the same entity. Row locks
// alone cannot do this for create paths: SELECT ... FOR UPDATE only locks
// rows that already exist, so two transactions that both scan an empty
// window would each lock nothing and both insert. On postgres this takes a
// transaction-scoped advisory lock that is released at commit or rollback.
// sqlite's single-writer connection already serializes writers, so the call
// is a no-op there.
func AcquireTxLock(tx *gorm.DB, class int, id uint) error {
	if !SupportsRowLocking(tx) {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryLockKey(class, id)).Error
}
