package toolcache

import (
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/toolcache/pkg/archive"
	"github.com/any-hub/toolcache/pkg/download"
	"github.com/any-hub/toolcache/pkg/platform"
)

// Options 中每个字段都是可选的，nil 表示使用默认值。
// 默认值只在 resolve 中统一填充。
type Options struct {
	Root       *string
	Arch       *platform.Arch
	Platform   *platform.Platform
	RetryCount *int
	Backoff    *time.Duration
	UserAgent  *string
	Client     *http.Client
	Logger     *logrus.Logger
	Extractor  *archive.Extractor

	// Env 为空时读取进程环境快照。
	Env Env
	// Candidates 为空时使用当前系统的默认候选目录。
	Candidates []string
}

type resolved struct {
	root       string
	arch       platform.Arch
	platform   platform.Platform
	retryCount int
	backoff    time.Duration
	userAgent  string
	client     *http.Client
	logger     *logrus.Logger
	extractor  *archive.Extractor
}

func (o Options) resolve() (resolved, error) {
	r := resolved{
		arch:       platform.CurrentArch(),
		platform:   platform.CurrentPlatform(),
		retryCount: download.DefaultRetries,
		backoff:    download.DefaultBackoff,
		userAgent:  download.DefaultUserAgent,
		client:     o.Client,
		logger:     o.Logger,
		extractor:  o.Extractor,
	}

	root := ""
	if o.Root != nil {
		root = *o.Root
	}
	if root == "" {
		env := o.Env
		if env == nil {
			env = EnvFromOS()
		}
		candidates := o.Candidates
		if len(candidates) == 0 {
			candidates = DefaultCandidates(runtime.GOOS)
		}
		var err error
		root, err = ResolveRoot(env, candidates, mkdirAll)
		if err != nil {
			return resolved{}, err
		}
	}
	abs, err := ensureRoot(root)
	if err != nil {
		return resolved{}, err
	}
	r.root = abs

	if o.Arch != nil {
		r.arch = *o.Arch
	}
	if o.Platform != nil {
		r.platform = *o.Platform
	}
	if o.RetryCount != nil {
		r.retryCount = *o.RetryCount
		if r.retryCount < 0 {
			r.retryCount = 0
		}
	}
	if o.Backoff != nil && *o.Backoff > 0 {
		r.backoff = *o.Backoff
	}
	if o.UserAgent != nil && *o.UserAgent != "" {
		r.userAgent = *o.UserAgent
	}
	if r.client == nil {
		r.client = download.DefaultClient()
	}
	if r.logger == nil {
		r.logger = logrus.StandardLogger()
	}
	if r.extractor == nil {
		r.extractor = archive.NewExtractor(archive.Options{Logger: r.logger})
	}
	return r, nil
}

// Builder 以链式调用填充 Options。
type Builder struct {
	opts Options
}

// NewBuilder 返回一个所有字段均未设置的 Builder。
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Root(root string) *Builder {
	b.opts.Root = &root
	return b
}

func (b *Builder) Arch(arch platform.Arch) *Builder {
	b.opts.Arch = &arch
	return b
}

func (b *Builder) Platform(p platform.Platform) *Builder {
	b.opts.Platform = &p
	return b
}

func (b *Builder) RetryCount(count int) *Builder {
	b.opts.RetryCount = &count
	return b
}

func (b *Builder) Backoff(d time.Duration) *Builder {
	b.opts.Backoff = &d
	return b
}

func (b *Builder) UserAgent(ua string) *Builder {
	b.opts.UserAgent = &ua
	return b
}

func (b *Builder) Client(client *http.Client) *Builder {
	b.opts.Client = client
	return b
}

func (b *Builder) Logger(logger *logrus.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

func (b *Builder) Extractor(extractor *archive.Extractor) *Builder {
	b.opts.Extractor = extractor
	return b
}

func (b *Builder) Env(env Env) *Builder {
	b.opts.Env = env
	return b
}

func (b *Builder) Candidates(candidates ...string) *Builder {
	b.opts.Candidates = candidates
	return b
}

// Options 返回当前累积的配置副本。
func (b *Builder) Options() Options {
	return b.opts
}

// Build 解析默认值并创建缓存根目录，失败时不返回降级实例。
func (b *Builder) Build() (*Store, error) {
	return NewStore(b.opts)
}
