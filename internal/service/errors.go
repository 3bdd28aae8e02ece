package service

import (
	"errors"

	"Volunteer_Hub/internal/pkg"

	"gorm.io/gorm"
)

var (
	ErrOpportunityNotFound  = pkg.NewError(pkg.KindNotFound, "opportunity not found")
	ErrOpportunityInactive  = pkg.NewError(pkg.KindNotFound, "opportunity is no longer active")
	ErrOpportunityFull      = pkg.NewError(pkg.KindCapacityExceeded, "opportunity is full or no longer active")
	ErrAlreadyApplied       = pkg.NewError(pkg.KindConflict, "you have already applied to this opportunity")
	ErrVolunteerOnly        = pkg.NewError(pkg.KindForbidden, "only volunteers can apply to opportunities")
	ErrOrganizationOnly     = pkg.NewError(pkg.KindForbidden, "only organizations can perform this action")
	ErrNotOpportunityOwner  = pkg.NewError(pkg.KindForbidden, "not authorized to manage this opportunity")
	ErrOrganizationNotFound = pkg.NewError(pkg.KindNotFound, "organization profile not found")

	ErrApplicationNotFound = pkg.NewError(pkg.KindNotFound, "application not found")
	ErrNotApplicant        = pkg.NewError(pkg.KindForbidden, "not authorized to access this application")
	ErrInvalidStatus       = pkg.NewError(pkg.KindValidation, "invalid status")
	ErrNotPending          = pkg.NewError(pkg.KindInvalidTransition, "application is not pending")

	ErrUserNotFound     = pkg.NewError(pkg.KindNotFound, "user not found")
	ErrReviewNotFound   = pkg.NewError(pkg.KindNotFound, "review not found")
	ErrSelfReview       = pkg.NewError(pkg.KindValidation, "you cannot review yourself")
	ErrRoleMismatch     = pkg.NewError(pkg.KindValidation, "review type does not match the reviewee role")
	ErrDuplicateReview  = pkg.NewError(pkg.KindConflict, "you have already reviewed this user")
	ErrNotParticipant   = pkg.NewError(pkg.KindForbidden, "you can only review after participating in this opportunity")
	ErrInvalidRating    = pkg.NewError(pkg.KindValidation, "rating must be between 1 and 5")
	ErrInvalidReview    = pkg.NewError(pkg.KindValidation, "invalid review type")
	ErrRatingContention = pkg.NewError(pkg.KindConflict, "rating is being updated concurrently, try again")

	ErrNotificationNotFound = pkg.NewError(pkg.KindNotFound, "notification not found")
	ErrNotNotificationOwner = pkg.NewError(pkg.KindForbidden, "not authorized to access this notification")

	ErrEmailTaken         = pkg.NewError(pkg.KindConflict, "user already exists with this email")
	ErrInvalidCredentials = pkg.NewError(pkg.KindUnauthorized, "invalid credentials")
	ErrInvalidRole        = pkg.NewError(pkg.KindValidation, "invalid role")
	ErrSessionExpired     = pkg.NewError(pkg.KindUnauthorized, "session expired, please login again")
	ErrAccountInactive    = pkg.NewError(pkg.KindUnauthorized, "account is inactive")

	ErrAdminOnly      = pkg.NewError(pkg.KindForbidden, "admin access required")
	ErrDeactivateSelf = pkg.NewError(pkg.KindValidation, "you cannot deactivate your own account")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
