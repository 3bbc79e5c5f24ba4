package cmd

import (
	"errors"

	"github.com/Kacegz/teactl/pkg/catalog"
	"github.com/Kacegz/teactl/pkg/clierror"
)

// mapAPIError converts catalog client failures into user-facing CLI errors.
//
// Forbidden is kept distinct from generic failure: local gating is advisory
// and the authority may reject an action the client believed was permitted.
func mapAPIError(err error, action, id string) error {
	switch {
	case catalog.IsForbidden(err):
		return clierror.NotAuthorized(action)
	case catalog.IsAuthFailed(err):
		return clierror.NotAuthenticated()
	case catalog.IsNotFound(err):
		return clierror.TeaNotFound(id)
	case catalog.IsUnavailable(err):
		return clierror.ConnectionFailed(GetServer())
	default:
		var apiErr *catalog.APIError
		if errors.As(err, &apiErr) {
			return clierror.InternalError(apiErr)
		}
		return err
	}
}
