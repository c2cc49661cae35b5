package handler

import (
	"net/http"

	"templatestore-backend/internal/dto"
	"templatestore-backend/internal/repository"
	"templatestore-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type LicenseHandler struct {
	licenseService service.LicenseService
	orderRepo      repository.OrderRepository
}

func NewLicenseHandler(licenseService service.LicenseService, orderRepo repository.OrderRepository) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
		orderRepo:      orderRepo,
	}
}

func (h *LicenseHandler) ValidateLicense(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ValidateLicenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.LicenseKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "license_key is required")
	}

	resp, err := h.licenseService.Validate(ctx, req.LicenseKey)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *LicenseHandler) RevokeLicense(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RevokeLicenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.LicenseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "license_id is required")
	}

	license, err := h.licenseService.Revoke(ctx, req.LicenseID, req.Reason)
	if err != nil {
		return err
	}
	if license == nil {
		return echo.NewHTTPError(http.StatusNotFound, "license not found")
	}

	return c.JSON(http.StatusOK, &dto.RevokeLicenseResponse{
		Success:   true,
		LicenseID: license.ID,
		Message:   "license revoked",
	})
}

// OrderLicenses lets an operator inspect what was issued for an order,
// mainly for reconciling partial-issuance incidents.
func (h *LicenseHandler) OrderLicenses(c echo.Context) error {
	ctx := c.Request().Context()

	externalOrderID := c.Param("externalId")

	order, err := h.orderRepo.FindByExternalID(ctx, externalOrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	licenses, err := h.licenseService.OrderLicenses(ctx, externalOrderID)
	if err != nil {
		return err
	}

	infos := make([]*dto.LicenseInfo, len(licenses))
	for i, license := range licenses {
		infos[i] = service.ToLicenseInfo(license)
	}

	return c.JSON(http.StatusOK, &dto.OrderLicensesResponse{
		ExternalOrderID: order.ExternalOrderID,
		Status:          string(order.Status),
		Licenses:        infos,
	})
}
