package main

//go:generate swag init -g cmd/ffws/main.go -o docs

// @title           FFWS Ingestion API
// @version         0.1.0
// @description     Telemetry ingestion, discharge calculation and flood layer lookup.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
