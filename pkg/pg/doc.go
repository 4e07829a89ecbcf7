// Package pg bootstraps the PostgreSQL layer backing the notification and
// analytics stores: a pgxpool connection with startup retries, goose schema
// migrations routed through the application logger, a health check closure,
// and helpers mapping driver errors onto domain sentinels.
package pg
