package catalog_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/catalog/mem"
)

func counterValue(t *testing.T, reg *prometheus.Registry, repo, method, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != "chronodb_catalog_calls_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["repo"] == repo && labels["method"] == method && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricDecoratorCountsCallsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	inner := mem.New(nil).Repositories(context.Background())
	decorated, err := catalog.NewMetricDecorator(inner, reg)
	if err != nil {
		t.Fatalf("NewMetricDecorator: %v", err)
	}

	ctx := context.Background()
	topic, err := decorated.Topics().CreateOrGet(ctx, "iox-shared")
	if err != nil {
		t.Fatalf("CreateOrGet topic: %v", err)
	}
	pool, err := decorated.QueryPools().CreateOrGet(ctx, "default")
	if err != nil {
		t.Fatalf("CreateOrGet pool: %v", err)
	}

	if _, err := decorated.Namespaces().Create(ctx, "ns1", "", topic.ID, pool.ID); err != nil {
		t.Fatalf("Create namespace: %v", err)
	}
	if _, err := decorated.Namespaces().Create(ctx, "ns1", "", topic.ID, pool.ID); err == nil {
		t.Fatalf("expected the second Create with the same name to fail")
	}

	if got := counterValue(t, reg, "namespaces", "create", "ok"); got != 1 {
		t.Errorf("expected one ok namespace create, got %v", got)
	}
	if got := counterValue(t, reg, "namespaces", "create", "error"); got != 1 {
		t.Errorf("expected one errored namespace create (duplicate name), got %v", got)
	}
	if got := counterValue(t, reg, "topics", "create_or_get", "ok"); got != 1 {
		t.Errorf("expected one ok topic create_or_get, got %v", got)
	}
}

func TestMetricDecoratorRegistersOncePerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	inner := mem.New(nil).Repositories(context.Background())

	if _, err := catalog.NewMetricDecorator(inner, reg); err != nil {
		t.Fatalf("first NewMetricDecorator: %v", err)
	}
	if _, err := catalog.NewMetricDecorator(inner, reg); err == nil {
		t.Fatalf("expected a duplicate-registration error from the second NewMetricDecorator on the same registry")
	}
}
