package catalog

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// Kind separates HTTP routes from events.
type Kind string

const (
	KindHTTP  Kind = "http"
	KindEvent Kind = "event"
)

// Route maps a name to a controller and the actions run for it, in order.
// Method and Path apply to HTTP routes; Async and Schedule apply to events.
type Route struct {
	Name       string   `json:"name" yaml:"-"`
	Kind       Kind     `json:"kind" yaml:"-"`
	Method     string   `json:"method,omitempty" yaml:"method"`
	Path       string   `json:"path,omitempty" yaml:"path"`
	Module     string   `json:"module,omitempty" yaml:"module"`
	Controller string   `json:"controller" yaml:"controller"`
	Actions    []string `json:"actions" yaml:"actions"`
	Schedule   string   `json:"schedule,omitempty" yaml:"schedule"`
	Async      bool     `json:"async,omitempty" yaml:"async"`
}

// HasAction reports whether action is part of the route's action list.
func (r Route) HasAction(action string) bool {
	return slices.Contains(r.Actions, action)
}

// Module groups routes under a path prefix.
// With AutoRoute, {Prefix}/{controller}/{action} is resolved at request time.
type Module struct {
	Name      string `json:"name" yaml:"-"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	AutoRoute bool   `json:"autoroute,omitempty" yaml:"autoroute"`
}

var methods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// normalize trims fields, upper-cases the method and drops empty or repeated actions.
func (r Route) normalize() Route {
	r.Name = strings.TrimSpace(r.Name)
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	r.Path = strings.TrimSpace(r.Path)
	r.Module = strings.TrimSpace(r.Module)
	r.Controller = strings.TrimSpace(r.Controller)
	r.Schedule = strings.TrimSpace(r.Schedule)
	r.Actions = appendActions(nil, r.Actions)
	return r
}

// appendActions appends the non-empty actions of src missing from dst.
func appendActions(dst, src []string) []string {
	for _, a := range src {
		a = strings.TrimSpace(a)
		if a != "" && !slices.Contains(dst, a) {
			dst = append(dst, a)
		}
	}
	return dst
}

// merge applies the conflict rule: non-empty incoming scalars win, actions are unioned.
func (r Route) merge(in Route) Route {
	if in.Method != "" {
		r.Method = in.Method
	}
	if in.Path != "" {
		r.Path = in.Path
	}
	if in.Module != "" {
		r.Module = in.Module
	}
	if in.Controller != "" {
		r.Controller = in.Controller
	}
	if in.Schedule != "" {
		r.Schedule = in.Schedule
	}
	r.Async = r.Async || in.Async
	r.Actions = appendActions(slices.Clone(r.Actions), in.Actions)
	return r
}

func (r Route) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRoute)
	}
	if r.Controller == "" {
		return fmt.Errorf("%w: %s %q has no controller", ErrInvalidRoute, r.Kind, r.Name)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("%w: %s %q has no actions", ErrInvalidRoute, r.Kind, r.Name)
	}

	switch r.Kind {
	case KindHTTP:
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("%w: route %q path %q must start with /", ErrInvalidRoute, r.Name, r.Path)
		}
		if !slices.Contains(methods, r.Method) {
			return fmt.Errorf("%w: route %q has unsupported method %q", ErrInvalidRoute, r.Name, r.Method)
		}
		if r.Async || r.Schedule != "" {
			return fmt.Errorf("%w: route %q: async and schedule apply to events only", ErrInvalidRoute, r.Name)
		}
	case KindEvent:
		if r.Path != "" || r.Method != "" || r.Module != "" {
			return fmt.Errorf("%w: event %q cannot have method, path or module", ErrInvalidRoute, r.Name)
		}
		if r.Schedule != "" {
			if _, err := cron.ParseStandard(r.Schedule); err != nil {
				return fmt.Errorf("%w: event %q schedule %q: %v", ErrInvalidRoute, r.Name, r.Schedule, err)
			}
		}
	default:
		return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidRoute, r.Name, r.Kind)
	}
	return nil
}

func (m Module) normalize() Module {
	m.Name = strings.TrimSpace(m.Name)
	m.Prefix = strings.TrimSpace(m.Prefix)
	if len(m.Prefix) > 1 {
		m.Prefix = strings.TrimRight(m.Prefix, "/")
	}
	return m
}

func (m Module) merge(in Module) Module {
	if in.Prefix != "" {
		m.Prefix = in.Prefix
	}
	m.AutoRoute = m.AutoRoute || in.AutoRoute
	return m
}

func (m Module) validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidModule)
	}
	if !strings.HasPrefix(m.Prefix, "/") || m.Prefix == "/" {
		return fmt.Errorf("%w: module %q prefix %q must be a path below /", ErrInvalidModule, m.Name, m.Prefix)
	}
	return nil
}
