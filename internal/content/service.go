package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/agilestore/agilestore-backend/internal/catalog"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

const maxBatchTexts = 50

type sectionReader interface {
	Section(ctx context.Context, slug string, locale enums.Locale) (catalog.SectionView, error)
}

// TranslateBatchRequest is a localization pass over arbitrary UI texts.
type TranslateBatchRequest struct {
	Texts  []string `json:"texts" validate:"required,min=1,dive,max=2000"`
	Source string   `json:"source" validate:"omitempty,oneof=id en"`
	Target string   `json:"target" validate:"required,oneof=id en"`
}

// TranslateBatchResponse preserves input order.
type TranslateBatchResponse struct {
	Translations []string `json:"translations"`
	Translated   bool     `json:"translated"`
}

// Service serves CMS sections and the translation proxy.
type Service interface {
	Section(ctx context.Context, slug string, locale enums.Locale) (catalog.SectionView, error)
	TranslateBatch(ctx context.Context, req TranslateBatchRequest) (*TranslateBatchResponse, error)
}

type service struct {
	sections   sectionReader
	translator TranslatorClient
	logg       *logger.Logger
}

// NewService builds the content service.
func NewService(sections sectionReader, translator TranslatorClient, logg *logger.Logger) (Service, error) {
	if sections == nil {
		return nil, fmt.Errorf("section reader is required")
	}
	if translator == nil {
		return nil, fmt.Errorf("translator client is required")
	}
	return &service{sections: sections, translator: translator, logg: logg}, nil
}

func (s *service) Section(ctx context.Context, slug string, locale enums.Locale) (catalog.SectionView, error) {
	return s.sections.Section(ctx, slug, locale)
}

// TranslateBatch proxies texts to the upstream translator. Upstream failure
// returns the source texts unchanged so the storefront renders untranslated
// copy instead of an error page.
func (s *service) TranslateBatch(ctx context.Context, req TranslateBatchRequest) (*TranslateBatchResponse, error) {
	if len(req.Texts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "texts are required")
	}
	if len(req.Texts) > maxBatchTexts {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d texts per batch", maxBatchTexts))
	}

	source := req.Source
	if strings.TrimSpace(source) == "" {
		source = string(enums.LocaleID)
	}
	if source == req.Target {
		return &TranslateBatchResponse{Translations: req.Texts, Translated: true}, nil
	}

	translations, err := s.translator.TranslateBatch(ctx, req.Texts, source, req.Target)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("translator unavailable, echoing source texts: %v", err))
		}
		return &TranslateBatchResponse{Translations: req.Texts, Translated: false}, nil
	}
	return &TranslateBatchResponse{Translations: translations, Translated: true}, nil
}
