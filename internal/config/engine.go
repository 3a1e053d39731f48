package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/matcher"
	"github.com/Veraticus/docmeta/internal/model"
)

// LoadEngineConfig reads extraction.* settings over engine.DefaultConfig.
//
//	extraction:
//	  workers: 4
//	  date_marker: 作成日
//	  reference_date: 2025-06-01
//	  customer:
//	    min_score: 75
func LoadEngineConfig(v *viper.Viper) (engine.Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	cfg := engine.DefaultConfig()

	setInt(v, "extraction.workers", &cfg.Workers)
	setInt(v, "extraction.min_split_confidence", &cfg.MinSplitConfidence)
	setInt(v, "extraction.max_file_name_length", &cfg.MaxFileNameLength)
	setInt(v, "extraction.max_customer_names", &cfg.MaxCustomerNames)
	setInt(v, "extraction.max_date_candidates", &cfg.MaxDateCandidates)

	if s := v.GetString("extraction.date_marker"); s != "" {
		cfg.DateMarker = s
	}
	if s := v.GetString("extraction.extension"); s != "" {
		cfg.Extension = s
	}
	if v.IsSet("extraction.append_document_id") {
		cfg.AppendDocumentID = v.GetBool("extraction.append_document_id")
	}
	if s := v.GetString("extraction.reference_date"); s != "" {
		ref, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return engine.Config{}, fmt.Errorf("%w: extraction.reference_date: %w", common.ErrInvalidConfig, err)
		}
		cfg.Now = ref
	}

	profiles := map[model.EntityKind]*matcher.Profile{
		model.KindDocument: &cfg.Document,
		model.KindOffice:   &cfg.Office,
		model.KindCustomer: &cfg.Customer,
	}
	for _, kind := range model.EntityKinds {
		p, err := matcher.ProfileFor(kind)
		if err != nil {
			return engine.Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
		loadProfile(v, "extraction."+string(kind), &p)
		*profiles[kind] = p
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func loadProfile(v *viper.Viper, prefix string, p *matcher.Profile) {
	setInt(v, prefix+".min_score", &p.MinScore)
	setInt(v, prefix+".search_range", &p.SearchRange)
	setInt(v, prefix+".fuzzy_margin", &p.FuzzyMargin)
	setInt(v, prefix+".max_candidates", &p.MaxCandidates)
	setInt(v, prefix+".manual_gap", &p.ManualGap)
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}
