// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain entities so the domain layer stays free of
// ORM tags.
//
// Each model has ToDomain and FromDomain mappers. Column types are chosen to work
// on both PostgreSQL (production schema from migrations/) and SQLite (AutoMigrate
// for the sqlite driver and tests).
package models
