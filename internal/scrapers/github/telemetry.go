package github

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github-retriever/scrapers/github")
