package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RelationshipChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clans_relationship_changes_total",
		Help: "Total number of ally/rival changes",
	}, []string{"kind", "op"})

	MembershipChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clans_membership_changes_total",
		Help: "Total number of join/leave/promote/demote operations",
	}, []string{"op"})

	BoardPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clans_board_posts_total",
		Help: "Total number of bulletin board posts",
	}, []string{"source"})

	ClansCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clans_created_total",
		Help: "Total number of clans created",
	})

	ClansDisbanded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clans_disbanded_total",
		Help: "Total number of clans disbanded",
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clans_store_errors_total",
		Help: "Total number of failed clan store operations",
	}, []string{"op"})

	StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clans_store_duration_seconds",
		Help:    "Duration of clan store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	Population = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clans_population",
		Help: "Number of clans and players currently loaded",
	}, []string{"kind"})
)
