// Package config loads environment-driven configuration structs for the
// notifier's components (scheduler polling, Postgres, Redis, email).
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: Load
// parses env tags into any struct, loading the default .env file once per
// process, and caches each successfully parsed type so repeated loads of the
// same config are served from memory. LoadEnv loads explicit .env files with
// later files taking precedence; ResetCache and ForceReloadConfig exist for
// tests that mutate the environment.
package config
