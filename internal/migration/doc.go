// Package migration owns the relational schema for helium's persistent
// stores (async tasks, conversation history). Migrations are embedded
// per driver and applied with golang-migrate; the GORM stores never
// auto-migrate in production.
package migration
