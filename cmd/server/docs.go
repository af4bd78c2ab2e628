package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Betledger API
// @version         0.1.0
// @description     Match catalog, wagering, settlement, and ledger reconciliation.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
