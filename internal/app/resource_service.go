package app

import (
	"context"

	"github.com/jixie-rent/server/internal/provider"
)

// resourceService 持有容器内的长连接资源，进程退出时统一释放
type resourceService struct {
	container *provider.Container
}

func newResourceService(c *provider.Container) *resourceService {
	return &resourceService{container: c}
}

func (s *resourceService) Name() string {
	return "resources"
}

// Start 阻塞直到上下文结束
func (s *resourceService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *resourceService) Stop(ctx context.Context) error {
	if s == nil || s.container == nil {
		return nil
	}
	return s.container.Close()
}
