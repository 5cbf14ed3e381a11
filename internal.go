package configdi

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// checkForDependency scans beanType for exported fields carrying the `di.inject` tag and records each
// as a required dependency. Pointer-to-struct, string and interface fields are supported; anything else
// is ignored. Callers must hold regMu.
func (c *Container) checkForDependency(beanType reflect.Type) (bool, []string) {
	if beanType.Kind() != reflect.Ptr || beanType.Elem().Kind() != reflect.Struct {
		return false, nil
	}

	elem := beanType.Elem()
	dependencyIDs := make([]string, 0)
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		tagName, exists := field.Tag.Lookup(InjectTag)
		if !exists || !field.IsExported() {
			// Unexported fields would need unsafe pointers.
			continue
		}
		tagName = strings.ToLower(tagName)

		switch {
		case field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct:
			c.requiredDependency[tagName] = field.Type.Elem()
		case field.Type.Kind() == reflect.String, field.Type.Kind() == reflect.Interface:
			c.requiredDependency[tagName] = field.Type
		default:
			continue
		}
		dependencyIDs = append(dependencyIDs, tagName)
	}

	return len(dependencyIDs) > 0, dependencyIDs
}

// injectDependencies walks the dependency graph depth-first, injecting each bean's dependencies
// after the dependencies themselves are complete. Cycles fail with the offending path.
func (c *Container) injectDependencies() error {
	visited := make(map[string]bool) // fully processed
	onPath := make(map[string]bool)  // nodes in the current recursion stack
	path := make([]string, 0, 16)

	var visit func(id string) error
	visit = func(id string) error {
		bn, ok := c.registeredBeans[id]
		if !ok {
			return fmt.Errorf("injectDependencies: receiver bean '%s' not found", id)
		}
		if onPath[id] {
			return fmt.Errorf("dependency cycle detected: %s", strings.Join(append(slices.Clone(path), id), pathSep))
		}
		if visited[id] {
			return nil
		}

		onPath[id] = true
		path = append(path, id)

		if bn.hasDependencies {
			if bn.instance == nil {
				return fmt.Errorf("injectDependencies: receiver bean '%s' is nil", bn.id)
			}

			for _, depBeanID := range bn.dependencies {
				depBean, err := c.dependencyBean(depBeanID, bn.id)
				if err != nil {
					return err
				}

				if err := visit(depBeanID); err != nil {
					return err
				}
				if depBean.instance == nil {
					return fmt.Errorf("injectDependencies: dependency bean '%s' for '%s' receiver bean not instantiated", depBeanID, bn.id)
				}
				if err := injectIntoStruct(bn, depBean, slices.Clone(path)); err != nil {
					return fmt.Errorf("injectDependencies: %w", err)
				}
				bn = c.registeredBeans[id]
			}
		}

		onPath[id] = false
		path = path[:len(path)-1]
		visited[id] = true
		return nil
	}

	for _, id := range slices.Sorted(maps.Keys(c.registeredBeans)) {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// dependencyBean returns the registered dependency, synthesising a literal bean from the literal
// provider for missing string dependencies.
func (c *Container) dependencyBean(depBeanID, receiverID string) (bean, error) {
	if depBean, ok := c.registeredBeans[depBeanID]; ok {
		return depBean, nil
	}

	expectedType, ok := c.requiredDependency[depBeanID]
	if ok && expectedType.Kind() == reflect.String {
		if lp := c.literalProvider(); lp != nil {
			val, found, err := lp(depBeanID, expectedType)
			if err != nil {
				return bean{}, fmt.Errorf("injectDependencies: literal provider error for '%s': %w", depBeanID, err)
			}
			if found {
				depBean := bean{
					id:       depBeanID,
					instance: val,
					beanType: expectedType,
				}
				c.registeredBeans[depBeanID] = depBean
				return depBean, nil
			}
		}
	}
	return bean{}, fmt.Errorf("injectDependencies: dependency bean '%s' for '%s' receiver bean not found", depBeanID, receiverID)
}

// dependencyOrder returns bean ids so that every bean follows its dependencies.
func (c *Container) dependencyOrder() ([]string, error) {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	order := make([]string, 0, len(c.registeredBeans))

	var visit func(string) error
	visit = func(id string) error {
		if visited[id] {
			return nil
		}
		if onPath[id] {
			return fmt.Errorf("initializer order: dependency cycle detected at '%s'", id)
		}
		onPath[id] = true
		bn := c.registeredBeans[id]
		for _, dep := range bn.dependencies {
			if _, ok := c.registeredBeans[dep]; !ok {
				return fmt.Errorf("initializer order: dependency '%s' required by '%s' not registered", dep, id)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		onPath[id] = false
		visited[id] = true
		order = append(order, id)
		return nil
	}

	for _, id := range slices.Sorted(maps.Keys(c.registeredBeans)) {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}
