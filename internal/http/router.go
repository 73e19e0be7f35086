package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/authz"
	"github.com/iyhunko/gas-app/internal/config"
	"github.com/iyhunko/gas-app/internal/http/controller"
	"github.com/iyhunko/gas-app/internal/http/middleware"
	"github.com/iyhunko/gas-app/internal/http/views"
)

// Controllers groups the request handlers mounted by InitRouter.
type Controllers struct {
	Base     *controller.Controller
	Producer *controller.ProducerController
	Product  *controller.ProductController
	Session  *controller.SessionController
}

func producerCollection(*gin.Context) (authz.Resource, error) {
	return authz.Producer(uuid.Nil), nil
}

func producerMember(c *gin.Context) (authz.Resource, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return authz.Resource{}, err
	}
	return authz.Producer(id), nil
}

func productScope(c *gin.Context) (authz.Resource, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return authz.Resource{}, err
	}
	return authz.Product(id), nil
}

// InitRouter mounts every route on server. Authorization runs before the
// login-state checks on each route.
func InitRouter(conf *config.Config, server *gin.Engine, mw *middleware.Middleware, ctrs Controllers) (*gin.Engine, error) {
	templates, err := views.Templates()
	if err != nil {
		return nil, err
	}
	server.SetHTMLTemplate(templates)

	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())
	server.Use(middleware.Logger())
	server.Use(middleware.CORS(conf.HTTPServer.AllowedOrigins...))
	server.Use(mw.Authenticate())

	server.GET("/ping", ctrs.Base.Ping)
	server.GET("/", ctrs.Base.Root)
	if conf.Storage.Bucket == "" {
		server.Static("/system", conf.Storage.Dir)
	}

	read := func(resource middleware.ResourceFunc) gin.HandlerFunc {
		return middleware.Authorize(authz.Read, resource)
	}

	producers := server.Group("/producers")
	{
		producers.GET("", read(producerCollection), ctrs.Producer.ListProducers)
		producers.GET("/map", read(producerCollection), ctrs.Producer.MapProducers)
		producers.GET("/new", middleware.Authorize(authz.Create, producerCollection), middleware.RequireGuest(), ctrs.Producer.NewProducer)
		producers.POST("", middleware.Authorize(authz.Create, producerCollection), middleware.RequireGuest(), ctrs.Producer.CreateProducer)
		producers.GET("/:id", read(producerMember), ctrs.Producer.ShowProducer)
		producers.GET("/:id/map", read(producerMember), ctrs.Producer.MapProducers)

		edit := []gin.HandlerFunc{middleware.Authorize(authz.Update, producerMember), middleware.RequireLogin()}
		producers.GET("/:id/edit", append(edit, ctrs.Producer.EditProducer)...)
		producers.PATCH("/:id", append(edit, ctrs.Producer.UpdateProducer)...)
		producers.PUT("/:id", append(edit, ctrs.Producer.UpdateProducer)...)
		producers.DELETE("/:id", middleware.Authorize(authz.Destroy, producerMember), middleware.RequireLogin(), ctrs.Producer.DeleteProducer)
	}

	products := server.Group("/producers/:id/products")
	{
		products.GET("", read(productScope), ctrs.Product.ListProducts)
		products.GET("/:product_id", read(productScope), ctrs.Product.ShowProduct)
		products.GET("/new", middleware.Authorize(authz.Create, productScope), middleware.RequireLogin(), ctrs.Product.NewProduct)
		products.POST("", middleware.Authorize(authz.Create, productScope), middleware.RequireLogin(), ctrs.Product.CreateProduct)

		edit := []gin.HandlerFunc{middleware.Authorize(authz.Update, productScope), middleware.RequireLogin()}
		products.GET("/:product_id/edit", append(edit, ctrs.Product.EditProduct)...)
		products.PATCH("/:product_id", append(edit, ctrs.Product.UpdateProduct)...)
		products.PUT("/:product_id", append(edit, ctrs.Product.UpdateProduct)...)
		products.DELETE("/:product_id", middleware.Authorize(authz.Destroy, productScope), middleware.RequireLogin(), ctrs.Product.DeleteProduct)
	}

	server.GET("/login", middleware.RequireGuest(), ctrs.Session.NewSession)
	server.POST("/login", ctrs.Session.CreateSession)
	server.DELETE("/login", ctrs.Session.DestroySession)

	return server, nil
}
