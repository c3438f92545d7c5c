package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/middleware"
)

// Handlers bundles every endpoint group for route registration.
type Handlers struct {
	Health         *HealthHandler
	Hospital       *HospitalHandler
	Doctor         *DoctorHandler
	Patient        *PatientHandler
	Appointment    *AppointmentHandler
	Prediction     *PredictionHandler
	Recommendation *RecommendationHandler
}

// RegisterRoutes wires all endpoints onto the router. Reads of the public
// directory (hospitals, doctors, facility search) are unauthenticated;
// everything touching patient data or mutating the graph requires a verified
// token.
func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string, logger *zap.Logger) {
	r.GET("/health", h.Health.Check)

	v1 := r.Group("/api/v1")

	// Public directory
	v1.GET("/hospitals", h.Hospital.List)
	v1.GET("/hospitals/:id", h.Hospital.Get)
	v1.GET("/doctors", h.Doctor.List)
	v1.GET("/doctors/:id", h.Doctor.Get)
	v1.GET("/facilities/nearby", h.Recommendation.Nearby)
	v1.GET("/recommendations", h.Recommendation.Recommend)

	auth := v1.Group("", middleware.AuthMiddleware(jwtSecret, logger))

	auth.POST("/hospitals", h.Hospital.Create)
	auth.PUT("/hospitals/:id", h.Hospital.Update)
	auth.DELETE("/hospitals/:id", h.Hospital.Delete)

	auth.POST("/doctors", h.Doctor.Register)
	auth.PUT("/doctors/:id", h.Doctor.Update)
	auth.PUT("/doctors/:id/rating", h.Doctor.SetRating)
	auth.DELETE("/doctors/:id", h.Doctor.Delete)

	auth.POST("/patients", h.Patient.Register)
	auth.GET("/patients", h.Patient.List)
	auth.GET("/patients/:id", h.Patient.Get)
	auth.PUT("/patients/:id", h.Patient.Update)
	auth.DELETE("/patients/:id", h.Patient.Delete)

	auth.POST("/appointments", h.Appointment.Create)
	auth.GET("/appointments", h.Appointment.ListAll)
	auth.GET("/appointments/:id", h.Appointment.Get)
	auth.PUT("/appointments/:id/status", h.Appointment.UpdateStatus)
	auth.DELETE("/appointments/:id", h.Appointment.Delete)

	auth.POST("/predictions", h.Prediction.Predict)
	auth.GET("/predictions", h.Prediction.ListAll)
	auth.GET("/predictions/:id", h.Prediction.Get)
	auth.DELETE("/predictions/:id", h.Prediction.Delete)

	// "me" endpoints live under their own prefix to avoid wildcard clashes.
	me := auth.Group("/me")
	me.GET("/doctor", h.Doctor.GetMyProfile)
	me.GET("/patient", h.Patient.GetMyRecord)
	me.GET("/appointments", h.Appointment.ListMine)
	me.GET("/predictions", h.Prediction.ListMine)
}
