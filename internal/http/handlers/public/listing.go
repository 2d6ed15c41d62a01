package public

import (
	"strings"

	"github.com/jixie-rent/server/internal/http/response"
	"github.com/jixie-rent/server/internal/repository"

	"github.com/gin-gonic/gin"
)

// SearchListings 搜索信息（按地域推广权重重排当前页）
func (h *Handler) SearchListings(c *gin.Context) {
	page, pageSize := parsePagination(c)

	listings, total, err := h.ListingSearchService.Search(repository.ListingSearchFilter{
		Page:       page,
		PageSize:   pageSize,
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		CategoryID: parseQueryUint(c, "category_id"),
		ProvinceID: parseQueryUint(c, "province_id"),
		CityID:     parseQueryUint(c, "city_id"),
		CountyID:   parseQueryUint(c, "county_id"),
		Sort:       strings.TrimSpace(c.Query("sort")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.listing_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, listings, response.BuildPagination(page, pageSize, total))
}
