// Package routing provides the route-matching collaborator used by the sitemap:
// matching a request path to route values and generating URLs from them.
//
// RouteTable implements conventional MVC-style templates such as
// "{controller}/{action}/{id}" with defaults and optional trailing parameters.
package routing
