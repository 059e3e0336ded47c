package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/vectorblade"
)

const (
	TopicBuildIndex           = "build_index"
	TopicUploadBuild          = "upload_build"
	TopicIndexStatus          = "index_status"
	TopicListAvailableIndexes = "list_available_indexes"
	TopicListLoadedIndexes    = "list_loaded_indexes"
	TopicQuery                = "query"
	TopicDeleteIndex          = "delete_index"
	TopicRescan               = "rescan"
)

func AddEndpoints(group micro.Group, endpoints *vectorblade.EndpointSet) error {
	handlers := []struct {
		name    string
		handler micro.HandlerFunc
	}{
		{TopicBuildIndex, BuildIndexHandler(endpoints.BuildIndex)},
		{TopicUploadBuild, UploadBuildHandler(endpoints.UploadBuild)},
		{TopicIndexStatus, NameHandler(endpoints.IndexStatus)},
		{TopicListAvailableIndexes, ListIndexesHandler(endpoints.ListAvailableIndexes)},
		{TopicListLoadedIndexes, ListIndexesHandler(endpoints.ListLoadedIndexes)},
		{TopicQuery, QueryHandler(endpoints.Query)},
		{TopicDeleteIndex, NameHandler(endpoints.DeleteIndex)},
		{TopicRescan, RescanHandler(endpoints.Rescan)},
	}

	for _, h := range handlers {
		if err := group.AddEndpoint(h.name, h.handler); err != nil {
			return err
		}
	}

	return nil
}
