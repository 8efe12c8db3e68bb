package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/prepwise/interview-coach/internal/dto"
	"github.com/prepwise/interview-coach/internal/middleware"
	"github.com/prepwise/interview-coach/internal/service"
	"github.com/prepwise/interview-coach/internal/usecase"
	"github.com/prepwise/interview-coach/internal/util"
)

type InterviewHandler struct {
	uc *usecase.InterviewUsecase
}

func NewInterviewHandler(uc *usecase.InterviewUsecase) *InterviewHandler {
	return &InterviewHandler{uc: uc}
}

func (h *InterviewHandler) RegisterRoutes(app *fiber.App) {
	interviews := app.Group("/v1/interviews")

	interviews.Post("/", middleware.RateLimiter(10, 1*time.Minute), h.Create)
	interviews.Post("/:id/start", h.Start)
	interviews.Post("/:id/fragments", h.PushFragment)
	interviews.Post("/:id/playback-ended", h.PlaybackEnded)
	interviews.Post("/:id/capture-ended", h.CaptureEnded)
	interviews.Post("/:id/stop", h.Stop)
	interviews.Post("/:id/feedback", h.Feedback)
	interviews.Get("/:id", h.State)
	interviews.Get("/:id/result", h.Result)
	interviews.Get("/:id/stats", h.Stats)
	interviews.Delete("/:id", h.Delete)
}

func (h *InterviewHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
		}, err)
	}

	resp, err := h.uc.CreateSession(c.Context(), &req)
	if errors.Is(err, usecase.ErrTooManySessions) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusServiceUnavailable,
			Message: "Too many active interviews, try again later",
		}, err)
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: err.Error(),
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Session created",
		Data:    resp,
	})
}

func (h *InterviewHandler) Start(c *fiber.Ctx) error {
	err := h.uc.StartSession(c.Context(), c.Params("id"))
	if err != nil {
		return h.commandError(c, err)
	}

	state, err := h.uc.State(c.Context(), c.Params("id"))
	if err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview started",
		Data:    state,
	})
}

func (h *InterviewHandler) PushFragment(c *fiber.Ctx) error {
	var req dto.FragmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
		}, err)
	}

	if err := h.uc.PushFragment(c.Params("id"), req.Text); err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Fragment accepted",
	})
}

func (h *InterviewHandler) PlaybackEnded(c *fiber.Ctx) error {
	if err := h.uc.NotifyPlaybackEnded(c.Params("id")); err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Playback end recorded",
	})
}

func (h *InterviewHandler) CaptureEnded(c *fiber.Ctx) error {
	var req dto.CaptureEndedRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
		}, err)
	}

	if err := h.uc.NotifyCaptureEnded(c.Params("id"), req.Reason); err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Capture end recorded",
	})
}

func (h *InterviewHandler) Stop(c *fiber.Ctx) error {
	result, err := h.uc.StopSession(c.Context(), c.Params("id"))
	if err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview finished",
		Data:    result,
	})
}

func (h *InterviewHandler) State(c *fiber.Ctx) error {
	state, err := h.uc.State(c.Context(), c.Params("id"))
	if err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Session state",
		Data:    state,
	})
}

func (h *InterviewHandler) Result(c *fiber.Ctx) error {
	result, err := h.uc.Result(c.Context(), c.Params("id"))
	if err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview result",
		Data:    result,
	})
}

func (h *InterviewHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.uc.Stats(c.Context(), c.Params("id"))
	if err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview stats",
		Data:    stats,
	})
}

func (h *InterviewHandler) Feedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
		}, err)
	}

	resp, err := h.uc.Feedback(c.Context(), c.Params("id"), &req)
	if err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Coach reply",
		Data:    resp,
	})
}

func (h *InterviewHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteSession(c.Context(), c.Params("id")); err != nil {
		return h.commandError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Session deleted",
	})
}

// commandError maps usecase errors onto HTTP statuses.
func (h *InterviewHandler) commandError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "Session not found",
		}, err)
	case errors.Is(err, usecase.ErrAlreadyStarted):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: "Interview already started",
		}, err)
	case errors.Is(err, usecase.ErrNotClosed):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: "Interview has no result yet",
		}, err)
	case service.IsGatewayError(err):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadGateway,
			Message: "Interview engine is unavailable, try again later",
		}, err)
	default:
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusInternalServerError,
			Message: "Something went wrong",
		}, err)
	}
}
