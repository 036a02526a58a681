package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter assembles the node's full route surface: the public client API,
// the peer node API and the content endpoints.
func NewRouter(client *ClientHandler, node *NodeHandler, content *ContentHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		clientAPI := api.Group("/client")
		{
			clientAPI.POST("/add-song", client.AddSong)
			clientAPI.POST("/get-song-info", client.GetSongInfo)
			clientAPI.POST("/find-songs", client.FindSongs)
			clientAPI.POST("/find-artist-songs", client.FindArtistSongs)
			clientAPI.POST("/get-song-link", client.GetSongLink)
			clientAPI.POST("/remove-song", client.RemoveSong)
			clientAPI.GET("/request-song", client.RequestSong)
		}

		nodeAPI := api.Group("/node")
		{
			nodeAPI.GET("/ping", node.Ping)
			nodeAPI.POST("/get-documents", node.GetDocuments)
			nodeAPI.POST("/get-document-addition-info", node.GetDocumentAdditionInfo)
			nodeAPI.POST("/add-song", node.AddSong)
			nodeAPI.POST("/remove-song", node.RemoveSong)
		}
	}

	r.GET("/audio/:code", content.Audio)
	r.GET("/cover/:code", content.Cover)

	return r
}
