package configdi

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type listened struct {
	Dir    string `di.inject:"DataDir"`
	seen   []string
	inited bool
}

func (l *listened) Initialize() error {
	l.seen = append(l.seen, "init")
	l.inited = true
	return nil
}

type recordingListener struct {
	heard []reflect.Type
	hook  InjectionListener
}

func (r *recordingListener) Hear(t reflect.Type, enc TypeEncounter) error {
	r.heard = append(r.heard, t)
	if t != reflect.TypeOf((*listened)(nil)) {
		return nil
	}
	return enc.Register(r.hook)
}

func TestTypeListener_HearsEachTypeOnceAndRunsPerInstance(t *testing.T) {
	var calls int
	rl := &recordingListener{hook: func(instance any) error {
		l := instance.(*listened)
		// Injection has already happened; Initialize has not.
		assert.Equal(t, "/srv", l.Dir)
		assert.False(t, l.inited)
		l.seen = append(l.seen, "listener")
		calls++
		return nil
	}}

	c := New(WithTypeListener(rl))
	require.NoError(t, c.Register("first", reflect.TypeOf(listened{})))
	require.NoError(t, c.Register("second", reflect.TypeOf(listened{})))
	require.NoError(t, c.RegisterInstance("DataDir", "/srv"))
	require.NoError(t, c.Build())

	assert.Equal(t, 2, calls)
	assert.Equal(t, []reflect.Type{reflect.TypeOf((*listened)(nil))}, rl.heard, "string beans are not offered")

	first, err := ResolveAs[*listened](c, "first")
	require.NoError(t, err)
	assert.Equal(t, []string{"listener", "init"}, first.seen)
}

func TestTypeListener_RegistrationOrderIsPreserved(t *testing.T) {
	var order []string
	tl := TypeListenerFunc(func(_ reflect.Type, enc TypeEncounter) error {
		require.NoError(t, enc.Register(func(any) error { order = append(order, "a"); return nil }))
		return enc.Register(func(any) error { order = append(order, "b"); return nil })
	})

	c := New()
	require.NoError(t, c.AddTypeListener(tl))
	require.NoError(t, c.RegisterInstance("logger", &Logbook{}))
	require.NoError(t, c.Build())

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestTypeListener_ErrorsFailBuild(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		listener TypeListener
		want     string
	}{
		{
			name: "hear fails",
			listener: TypeListenerFunc(func(reflect.Type, TypeEncounter) error {
				return boom
			}),
			want: "type listener for bean 'logger' failed",
		},
		{
			name: "injection listener fails",
			listener: TypeListenerFunc(func(_ reflect.Type, enc TypeEncounter) error {
				return enc.Register(func(any) error { return boom })
			}),
			want: "injection listener for bean 'logger' failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithTypeListener(tt.listener))
			require.NoError(t, c.RegisterInstance("logger", &Logbook{}))

			err := c.Build()
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.want)

			// A failed build leaves registration open.
			assert.NoError(t, c.RegisterInstance("other", &Logbook{}))
		})
	}
}

func TestTypeListener_EncounterRules(t *testing.T) {
	var kept TypeEncounter
	tl := TypeListenerFunc(func(_ reflect.Type, enc TypeEncounter) error {
		kept = enc
		assert.ErrorIs(t, enc.Register(nil), ErrInjectionListenerNil)
		return nil
	})

	c := New()
	assert.ErrorIs(t, c.AddTypeListener(nil), ErrTypeListenerIsNil)
	require.NoError(t, c.AddTypeListener(tl))
	require.NoError(t, c.RegisterInstance("logger", &Logbook{}))
	require.NoError(t, c.Build())

	require.NotNil(t, kept)
	assert.ErrorIs(t, kept.Register(func(any) error { return nil }), ErrEncounterClosed)
	assert.ErrorIs(t, c.AddTypeListener(tl), ErrRegistrationClosed)
}

type lookupTarget struct{ n int }

func TestTypeEncounter_InjectorResolvesDuringBuild(t *testing.T) {
	var named any
	var jit any
	tl := TypeListenerFunc(func(bt reflect.Type, enc TypeEncounter) error {
		if bt != reflect.TypeOf((*Station)(nil)) {
			return nil
		}
		return enc.Register(func(any) error {
			var err error
			if named, err = enc.Injector().ResolveNamed("StationLogbook", reflect.TypeOf((*Logbook)(nil))); err != nil {
				return err
			}
			jit, err = enc.Injector().ResolveType(reflect.TypeOf(lookupTarget{}))
			return err
		})
	})

	c := New(WithTypeListener(tl))
	require.NoError(t, c.Register("StationBean", reflect.TypeOf(Station{})))
	require.NoError(t, c.RegisterInstance("StationSettings", &Settings{}))
	require.NoError(t, c.RegisterInstance("StationLogbook", &Logbook{}))
	require.NoError(t, c.RegisterInstance("DataDir", "/srv"))
	require.NoError(t, c.Build())

	assert.Same(t, c.Resolve("StationLogbook"), named)
	assert.IsType(t, &lookupTarget{}, jit)
}

type onDemand struct {
	heardBy []string
	inited  bool
}

func (o *onDemand) Initialize() error {
	o.heardBy = append(o.heardBy, "init")
	o.inited = true
	return nil
}

func TestResolveType_UnregisteredGoesThroughListeners(t *testing.T) {
	var hearCount int
	tl := TypeListenerFunc(func(bt reflect.Type, enc TypeEncounter) error {
		if bt != reflect.TypeOf((*onDemand)(nil)) {
			return nil
		}
		hearCount++
		return enc.Register(func(instance any) error {
			od := instance.(*onDemand)
			od.heardBy = append(od.heardBy, "listener")
			return nil
		})
	})

	c := New(WithTypeListener(tl))
	require.NoError(t, c.Build())

	first, err := ResolveTypeAs[*onDemand](c)
	require.NoError(t, err)
	assert.Equal(t, []string{"listener", "init"}, first.heardBy)
	assert.True(t, first.inited)

	second, err := ResolveTypeAs[*onDemand](c)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, hearCount, "the type is heard once")
}

func TestResolveType_UnregisteredListenerErrors(t *testing.T) {
	boom := errors.New("boom")
	c := New(WithTypeListener(TypeListenerFunc(func(_ reflect.Type, enc TypeEncounter) error {
		return enc.Register(func(any) error { return boom })
	})))
	require.NoError(t, c.Build())

	_, err := c.ResolveType(reflect.TypeOf(onDemand{}))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "injection listener for unregistered")
}

func TestResolveNamed_TypeMismatch(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterInstance("StationLogbook", &Logbook{}))

	_, err := c.ResolveNamed("stationlogbook", reflect.TypeOf((*Station)(nil)))
	assert.ErrorIs(t, err, ErrBeanTypeMismatch)

	v, err := c.ResolveNamed("STATIONLOGBOOK", reflect.TypeOf((*Logbook)(nil)))
	require.NoError(t, err)
	assert.IsType(t, &Logbook{}, v)
}

func TestResolveType(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterInstance("LogbookA", &Logbook{}))
	require.NoError(t, c.RegisterInstance("LogbookB", &Logbook{}))
	require.NoError(t, c.RegisterInstance("Cfg", &Settings{}))
	require.NoError(t, c.RegisterInstance("DataDir", "/x"))

	_, err := c.ResolveType(reflect.TypeOf((*Logbook)(nil)))
	require.ErrorIs(t, err, ErrAmbiguousType)
	assert.Contains(t, err.Error(), "logbooka, logbookb")

	cfg, err := ResolveTypeAs[*Settings](c)
	require.NoError(t, err)
	assert.Equal(t, "/x", cfg.DataDir)

	_, err = c.ResolveType(reflect.TypeFor[error]())
	assert.ErrorIs(t, err, ErrBeanNotFound)

	_, err = c.ResolveType(nil)
	assert.ErrorIs(t, err, ErrBeanTypeParamIsNil)

	fresh, err := ResolveTypeAs[*lookupTarget](c)
	require.NoError(t, err)
	again, err := ResolveTypeAs[*lookupTarget](c)
	require.NoError(t, err)
	assert.NotSame(t, fresh, again, "unregistered types are not cached")
}

func TestBuild_LogsEncounteredTypes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tl := TypeListenerFunc(func(_ reflect.Type, enc TypeEncounter) error {
		return enc.Register(func(any) error { return nil })
	})

	c := New(WithLogger(zap.New(core)), WithTypeListener(tl))
	require.NoError(t, c.RegisterInstance("logger", &Logbook{}))
	require.NoError(t, c.Build())

	encountered := logs.FilterMessage("type encountered").All()
	require.Len(t, encountered, 1)
	assert.Equal(t, "*configdi.Logbook", encountered[0].ContextMap()["type"])
	assert.Equal(t, 1, logs.FilterMessage("injection listeners completed").Len())
}
