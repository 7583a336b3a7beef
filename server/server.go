// Package server exposes a navigation system over HTTP for tools.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/milk9111/navkit/common"
	"github.com/milk9111/navkit/navsys"
	"github.com/milk9111/navkit/pathfind"
	"github.com/milk9111/navkit/prefabs"
)

const watchInterval = 200 * time.Millisecond

// Controller serializes every request through one lock; the System and its
// Solver are single-threaded.
type Controller struct {
	mu     sync.Mutex
	sys    *navsys.System
	path   *pathfind.Path
	radius float64
	height float64
}

type Options struct {
	Radius       float64
	Height       float64
	PathCapacity int
}

func NewController(sys *navsys.System, opts Options) *Controller {
	if opts.PathCapacity <= 0 {
		opts.PathCapacity = pathfind.DefaultPathCapacity
	}
	return &Controller{
		sys:    sys,
		path:   pathfind.NewPath(opts.PathCapacity),
		radius: opts.Radius,
		height: opts.Height,
	}
}

// Router builds the gin engine with the query routes registered.
func (c *Controller) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	c.register(engine)
	return engine
}

func (c *Controller) register(r gin.IRoutes) {
	r.GET("/mesh", c.mesh)
	r.POST("/mesh/reload", c.reload)
	r.POST("/raycast", c.raycast)
	r.POST("/los", c.lineOfSight)
	r.POST("/path", c.findPath)
}

type vec [3]float64

func (v vec) vec3() common.Vec3 {
	return common.Vec3{v[0], v[1], v[2]}
}

func fromVec3(v common.Vec3) vec {
	return vec{v.X(), v.Y(), v.Z()}
}

type MeshRsp struct {
	Path          string     `json:"path"`
	Vertices      int        `json:"vertices"`
	Edges         int        `json:"edges"`
	Polys         int        `json:"polys"`
	SolidEdges    int        `json:"solid_edges"`
	BoundaryEdges int        `json:"boundary_edges"`
	Min           [2]float64 `json:"min"`
	Max           [2]float64 `json:"max"`
	MinZ          float64    `json:"min_z"`
	MaxZ          float64    `json:"max_z"`
}

type RaycastReq struct {
	Origin *vec `json:"origin" binding:"required"`
	Dir    *vec `json:"dir"`
}

type RaycastRsp struct {
	Hit      bool    `json:"hit"`
	Poly     int     `json:"poly"`
	Point    vec     `json:"point"`
	Distance float64 `json:"distance"`
}

type LineReq struct {
	Start  *vec     `json:"start" binding:"required"`
	End    *vec     `json:"end" binding:"required"`
	Height *float64 `json:"height"`
}

type LineRsp struct {
	Blocked bool `json:"blocked"`
}

type PathReq struct {
	Start  *vec     `json:"start" binding:"required"`
	Dest   *vec     `json:"dest" binding:"required"`
	Radius *float64 `json:"radius"`
}

type Waypoint struct {
	Position vec `json:"position"`
	Edge     int `json:"edge"`
	Poly     int `json:"poly"`
}

type PathRsp struct {
	Waypoints []Waypoint `json:"waypoints"`
}

type ErrorRsp struct {
	Error string `json:"error"`
}

func (c *Controller) fail(ctx *gin.Context, status int, err error) {
	ctx.JSON(status, ErrorRsp{Error: err.Error()})
}

func (c *Controller) mesh(ctx *gin.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.sys.Mesh()
	if m == nil {
		c.fail(ctx, http.StatusServiceUnavailable, navsys.ErrNoMesh)
		return
	}
	st := m.Stats()
	ctx.JSON(http.StatusOK, MeshRsp{
		Path:          c.sys.MeshPath(),
		Vertices:      st.Vertices,
		Edges:         st.Edges,
		Polys:         st.Polys,
		SolidEdges:    st.SolidEdges,
		BoundaryEdges: st.BoundaryEdges,
		Min:           [2]float64{st.Bounds.L, st.Bounds.B},
		Max:           [2]float64{st.Bounds.R, st.Bounds.T},
		MinZ:          st.MinZ,
		MaxZ:          st.MaxZ,
	})
}

func (c *Controller) reload(ctx *gin.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.sys.MeshPath()
	if path == "" {
		c.fail(ctx, http.StatusServiceUnavailable, navsys.ErrNoMesh)
		return
	}
	if err := c.sys.LoadMesh(path); err != nil {
		c.fail(ctx, http.StatusInternalServerError, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"path": path, "polys": c.sys.Mesh().PolyCount()})
}

func (c *Controller) raycast(ctx *gin.Context) {
	var req RaycastReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.fail(ctx, http.StatusBadRequest, err)
		return
	}
	dir := common.Down
	if req.Dir != nil {
		dir = req.Dir.vec3()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hit, ok := c.sys.Raycast(common.NewRay(req.Origin.vec3(), dir))
	if !ok {
		ctx.JSON(http.StatusOK, RaycastRsp{Hit: false, Poly: pathfind.NoIndex})
		return
	}
	ctx.JSON(http.StatusOK, RaycastRsp{
		Hit:      true,
		Poly:     hit.Poly.Index,
		Point:    fromVec3(hit.Point),
		Distance: hit.Distance,
	})
}

func (c *Controller) lineOfSight(ctx *gin.Context) {
	var req LineReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.fail(ctx, http.StatusBadRequest, err)
		return
	}
	height := c.height
	if req.Height != nil {
		height = *req.Height
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sys.Mesh() == nil {
		c.fail(ctx, http.StatusServiceUnavailable, navsys.ErrNoMesh)
		return
	}
	blocked := c.sys.LineIntersectsSolid(req.Start.vec3(), req.End.vec3(), height)
	ctx.JSON(http.StatusOK, LineRsp{Blocked: blocked})
}

func (c *Controller) findPath(ctx *gin.Context) {
	var req PathReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.fail(ctx, http.StatusBadRequest, err)
		return
	}
	radius := c.radius
	if req.Radius != nil {
		radius = *req.Radius
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sys.FindPath(req.Start.vec3(), req.Dest.vec3(), radius, c.path); err != nil {
		c.fail(ctx, pathStatus(err), err)
		return
	}

	rsp := PathRsp{Waypoints: make([]Waypoint, 0, c.path.Len())}
	for _, n := range c.path.Nodes() {
		rsp.Waypoints = append(rsp.Waypoints, Waypoint{Position: fromVec3(n.Position), Edge: n.Edge, Poly: n.Poly})
	}
	ctx.JSON(http.StatusOK, rsp)
}

func pathStatus(err error) int {
	switch {
	case errors.Is(err, navsys.ErrNoMesh):
		return http.StatusServiceUnavailable
	case errors.Is(err, pathfind.ErrNoPolygon), errors.Is(err, pathfind.ErrUnreachable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pathfind.ErrPathFull):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// Watch reloads the mesh whenever w reports a change to it, until ctx is
// cancelled. Reloads take the same lock as requests.
func (c *Controller) Watch(ctx context.Context, w *prefabs.Watcher) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.sys.PollReload(w)
			c.mu.Unlock()
		}
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (c *Controller) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: c.Router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
