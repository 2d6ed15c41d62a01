package service

import (
	"strings"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/ranking"
	"github.com/jixie-rent/server/internal/repository"
)

// RankedListing 带推广分的搜索结果
type RankedListing struct {
	models.Listing
	RankScore int `json:"rank_score"`
}

// ListingSearchService 信息搜索服务
type ListingSearchService struct {
	listingRepo repository.ListingRepository
	now         func() time.Time
}

// NewListingSearchService 创建信息搜索服务
func NewListingSearchService(listingRepo repository.ListingRepository) *ListingSearchService {
	return &ListingSearchService{listingRepo: listingRepo, now: time.Now}
}

// Search 按自然排序取一页，再仅对该页按推广分重排
func (s *ListingSearchService) Search(filter repository.ListingSearchFilter) ([]RankedListing, int64, error) {
	filter.Sort = normalizeListingSort(filter.Sort)
	listings, total, err := s.listingRepo.Search(filter)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]models.Listing, len(listings))
	candidates := make([]ranking.Candidate, 0, len(listings))
	for _, listing := range listings {
		byID[listing.ID] = listing
		candidates = append(candidates, toCandidate(listing))
	}
	ranked := ranking.Rank(candidates, ranking.SearchContext{
		ProvinceID: filter.ProvinceID,
		CityID:     filter.CityID,
		CountyID:   filter.CountyID,
		Sort:       filter.Sort,
	}, s.now())

	items := make([]RankedListing, 0, len(ranked))
	for _, item := range ranked {
		items = append(items, RankedListing{Listing: byID[item.ID], RankScore: item.Score})
	}
	return items, total, nil
}

func toCandidate(listing models.Listing) ranking.Candidate {
	scope := ""
	if listing.PromotionScope != nil {
		scope = *listing.PromotionScope
	}
	price, _ := listing.Price.Decimal.Float64()
	return ranking.Candidate{
		ID:                 listing.ID,
		ProvinceID:         listing.ProvinceID,
		CityID:             listing.CityID,
		CountyID:           listing.CountyID,
		PromotionTier:      listing.PromotionTier,
		PromotionScope:     scope,
		PromotionExpiresAt: listing.PromotionExpiresAt,
		PublishedAt:        listing.PublishedAt,
		ViewCount:          listing.ViewCount,
		Price:              price,
	}
}

func normalizeListingSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case constants.ListingSortPopular:
		return constants.ListingSortPopular
	case constants.ListingSortPriceAsc:
		return constants.ListingSortPriceAsc
	case constants.ListingSortPriceDesc:
		return constants.ListingSortPriceDesc
	default:
		return constants.ListingSortLatest
	}
}
