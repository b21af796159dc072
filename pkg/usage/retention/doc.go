// Package retention prunes old request log records.
//
// Pruning is opt-in and governed by deployment configuration. The pruner
// deletes records older than the retention period and can additionally cap
// the total record count. A cron-based scheduler runs pruning cycles
// unattended, typically once a day during low traffic.
package retention
